package prompt

import (
	"fmt"
	"strings"
)

// FormatTemplate: 템플릿 문자열을 값으로 치환합니다.
// 없는 변수는 오류다. 프롬프트 빌드 경로에서는 FormatLenient 를 사용한다.
func FormatTemplate(template string, values map[string]string) (string, error) {
	return format(template, values, true)
}

// FormatLenient: 없는 변수를 빈 문자열로 치환합니다. 절대 실패하지 않아야 하는
// 프롬프트 빌드 경로에서 쓴다. 문법 오류만 오류로 반환한다.
func FormatLenient(template string, values map[string]string) (string, error) {
	return format(template, values, false)
}

func format(template string, values map[string]string, strict bool) (string, error) {
	var builder strings.Builder
	builder.Grow(len(template))

	for i := 0; i < len(template); {
		switch template[i] {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				builder.WriteByte('{')
				i += 2
				continue
			}
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("invalid template: missing '}'")
			}
			key := template[i+1 : i+1+end]
			value, ok := values[key]
			if !ok && strict {
				return "", fmt.Errorf("missing template value for %q", key)
			}
			builder.WriteString(value)
			i += end + 2
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				builder.WriteByte('}')
				i += 2
				continue
			}
			return "", fmt.Errorf("invalid template: unexpected '}'")
		default:
			builder.WriteByte(template[i])
			i++
		}
	}

	return builder.String(), nil
}

// ValidateSystemStatic: 시스템 프롬프트에 템플릿 변수가 없는지 검사합니다.
func ValidateSystemStatic(name string, system string) error {
	for i := 0; i < len(system); {
		switch system[i] {
		case '{':
			if i+1 < len(system) && system[i+1] == '{' {
				i += 2
				continue
			}
			end := strings.IndexByte(system[i+1:], '}')
			if end < 0 {
				return fmt.Errorf("%s: invalid system prompt template syntax", name)
			}
			key := system[i+1 : i+1+end]
			return fmt.Errorf("%s: system prompt must not contain template variables %q", name, key)
		case '}':
			if i+1 < len(system) && system[i+1] == '}' {
				i += 2
				continue
			}
			return fmt.Errorf("%s: invalid system prompt template syntax", name)
		default:
			i++
		}
	}
	return nil
}
