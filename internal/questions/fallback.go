package questions

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed fallback.yaml
var fallbackYAML []byte

type fallbackFile struct {
	Questions []string `yaml:"questions"`
}

var (
	fallbackOnce sync.Once
	fallbackList []string
	fallbackErr  error
)

func loadFallback() ([]string, error) {
	fallbackOnce.Do(func() {
		var f fallbackFile
		if err := yaml.Unmarshal(fallbackYAML, &f); err != nil {
			fallbackErr = fmt.Errorf("failed to parse fallback questions: %w", err)
			return
		}
		if len(f.Questions) == 0 {
			fallbackErr = fmt.Errorf("fallback question list is empty")
			return
		}
		fallbackList = f.Questions
	})
	return fallbackList, fallbackErr
}

// Fallback returns up to count built-in questions in a fixed order.
// The embedded list is validated by tests, so a parse failure panics.
func Fallback(count int) []string {
	list, err := loadFallback()
	if err != nil {
		panic(err)
	}
	if count <= 0 || count > len(list) {
		count = len(list)
	}
	out := make([]string, count)
	copy(out, list[:count])
	return out
}
