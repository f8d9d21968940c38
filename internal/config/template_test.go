package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate(t *testing.T) {
	content := `port = {{var "port" 8080 false}}
host = {{var "host" "localhost" false}}
origins = {{var "origins" "" true}}
secure = {{var "secure" false false}}`

	rendered, err := renderTemplate(content, map[string]interface{}{
		"port":    9090,
		"origins": []string{"http://a", "http://b"},
	})
	require.NoError(t, err)

	assert.Equal(t, `port = 9090
host = "localhost"
origins = ["http://a", "http://b"]
secure = false`, rendered)
}

func TestRenderTemplateMissingRequired(t *testing.T) {
	content := `a = {{var "client_id" "" true}}
b = {{var "origins" "" true}}
c = {{var "client_id" "" true}}`

	_, err := renderTemplate(content, map[string]interface{}{"client_id": ""})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client_id, origins")
}

func TestRenderTemplateQuotesStrings(t *testing.T) {
	rendered, err := renderTemplate(`v = {{var "v" "" false}}`, map[string]interface{}{"v": `say "hi"`})
	require.NoError(t, err)
	assert.Equal(t, `v = "say \"hi\""`, rendered)
}

// Згенерований з шаблону репозиторію файл має проходити LoadConfig
func TestGenerateConfigFromRepositoryTemplate(t *testing.T) {
	templatePath := filepath.Join("..", "..", "configs", "twitter-oauth.hcl.tmpl")
	outputPath := filepath.Join(t.TempDir(), "nested", "local.hcl")

	err := GenerateConfigFromTemplate(templatePath, outputPath, map[string]interface{}{
		"twitter_client_id":    "client-id",
		"cors_allowed_origins": []string{"http://localhost:3000"},
	})
	require.NoError(t, err)

	info, err := os.Stat(outputPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	t.Setenv("TWITTER_CLIENT_SECRET", "secret")
	cfg, err := LoadConfig(outputPath)
	require.NoError(t, err)

	assert.Equal(t, "client-id", cfg.Twitter.ClientID)
	assert.Equal(t, "secret", cfg.Twitter.ClientSecret)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Security.CORS.AllowedOrigins)
	assert.True(t, cfg.OAuthConfig().Complete())
}

func TestGenerateConfigFromTemplateMissingRequired(t *testing.T) {
	templatePath := filepath.Join("..", "..", "configs", "twitter-oauth.hcl.tmpl")
	outputPath := filepath.Join(t.TempDir(), "local.hcl")

	err := GenerateConfigFromTemplate(templatePath, outputPath, map[string]interface{}{})
	assert.ErrorContains(t, err, "twitter_client_id")

	_, statErr := os.Stat(outputPath)
	assert.True(t, os.IsNotExist(statErr))
}
