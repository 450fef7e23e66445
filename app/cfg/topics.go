package cfg

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lysyi3m/news-relay/app/fcm"
)

// LoadTopics returns the enabled topics listed in path, in file order and
// without duplicates. A missing file means no topics.
func LoadTopics(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("Topics file not found, no topics will be subscribed", "path", path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read topics file: %w", err)
	}

	var file TopicsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	seen := make(map[string]bool, len(file.Topics))
	topics := make([]string, 0, len(file.Topics))

	for i, topic := range file.Topics {
		name := strings.TrimSpace(topic.Name)
		if name == "" {
			return nil, fmt.Errorf("topic at index %d has no name", i)
		}
		if !fcm.ValidTopic(name) {
			return nil, fmt.Errorf("invalid topic name at index %d: %q", i, name)
		}
		if topic.Enabled != nil && !*topic.Enabled {
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		topics = append(topics, name)
	}

	slog.Debug("Topics loaded", "path", path, "count", len(topics))

	return topics, nil
}
