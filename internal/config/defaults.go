package config

import (
	"github.com/knadh/koanf/providers/confmap"
)

func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"client": map[string]interface{}{
			"base_url": "http://localhost:8480",
			"app_id":   AppName,
			"timeout":  10,
		},
		"server": map[string]interface{}{
			"listen": ":8480",
			"app_id": AppName,
		},
		"scheduler": map[string]interface{}{
			"poll_interval": 10, // seconds between due checks
			"alert_timeout": 45, // seconds before an alert auto-dismisses
		},
		"storage": map[string]interface{}{
			"path": "", // xdg default
		},
		"notify": map[string]interface{}{
			"sms_gateway_url": "",
			"webhook_url":     "",
			"desktop":         true,
		},
		"log": map[string]interface{}{
			"debug": false,
			"json":  false,
		},
	}
}

// NewDefaultProvider returns a koanf provider serving the built-in defaults.
func NewDefaultProvider() *confmap.Confmap {
	return confmap.Provider(DefaultConfig(), ".")
}
