package config

import (
	"fmt"
	"os"

	"brainbuster-service/internal/domain"
	"gopkg.in/yaml.v3"
)

type questionFile struct {
	Questions []domain.Question `yaml:"questions"`
}

// LoadQuestions reads a YAML question bank.
func LoadQuestions(path string) ([]domain.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f questionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse questions %s: %w", path, err)
	}
	return f.Questions, nil
}
