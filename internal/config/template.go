package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// varTag {{var "name" default required}}
var varTag = regexp.MustCompile(`\{\{var\s+"([^"]+)"\s+("[^"]*"|[^\s}]+)\s+(true|false)\s*\}\}`)

// GenerateConfigFromTemplate генерує HCL конфігурацію з шаблону використовуючи змінні
func GenerateConfigFromTemplate(templatePath, outputPath string, vars map[string]interface{}) error {
	content, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	rendered, err := renderTemplate(string(content), vars)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Файл містить client secret, тому лише для власника
	if err := os.WriteFile(outputPath, []byte(rendered), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// renderTemplate підставляє значення у {{var}} теги.
// Обов'язкові змінні без значення та без default повертаються однією помилкою.
func renderTemplate(content string, vars map[string]interface{}) (string, error) {
	missing := map[string]struct{}{}

	rendered := varTag.ReplaceAllStringFunc(content, func(match string) string {
		groups := varTag.FindStringSubmatch(match)
		name, defaultValue, required := groups[1], groups[2], groups[3] == "true"

		if value, ok := vars[name]; ok && !isEmptyValue(value) {
			return formatValue(value)
		}

		if required && (defaultValue == `""` || defaultValue == "") {
			missing[name] = struct{}{}
			return match
		}

		return formatValue(parseDefaultValue(defaultValue))
	})

	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for name := range missing {
			names = append(names, name)
		}
		sort.Strings(names)
		return "", fmt.Errorf("required template variables are not set: %s", strings.Join(names, ", "))
	}

	return rendered, nil
}

func isEmptyValue(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []string:
		return len(v) == 0
	}
	return false
}

// formatValue форматує значення для HCL
func formatValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strconv.Quote(v)
	case []string:
		quoted := make([]string, 0, len(v))
		for _, item := range v {
			quoted = append(quoted, strconv.Quote(strings.TrimSpace(item)))
		}
		return "[" + strings.Join(quoted, ", ") + "]"
	case int, int32, int64:
		return fmt.Sprintf("%d", v)
	case float32, float64:
		return fmt.Sprintf("%g", v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return strconv.Quote(fmt.Sprintf("%v", v))
	}
}

// parseDefaultValue парсить дефолтне значення з шаблону
func parseDefaultValue(defaultValue string) interface{} {
	if strings.HasPrefix(defaultValue, `"`) && strings.HasSuffix(defaultValue, `"`) {
		return strings.Trim(defaultValue, `"`)
	}

	if intVal, err := strconv.Atoi(defaultValue); err == nil {
		return intVal
	}

	if floatVal, err := strconv.ParseFloat(defaultValue, 64); err == nil {
		return floatVal
	}

	if boolVal, err := strconv.ParseBool(defaultValue); err == nil {
		return boolVal
	}

	return defaultValue
}
