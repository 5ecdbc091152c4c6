// Package openapi 管理APIとWebhookのOpenAPI定義を埋め込む
package openapi

import (
	_ "embed"
	"fmt"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Spec OpenAPI 3.0定義（YAML）
//
//go:embed openapi.yaml
var Spec []byte

// JSON 定義をJSONに変換して返す
func JSON() ([]byte, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(Spec, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse openapi spec: %w", err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode openapi spec: %w", err)
	}
	return out, nil
}
