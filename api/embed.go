// Package api embeds the OpenAPI document of the web shell JSON API.
package api

import _ "embed"

// OpenAPI is the document served to the request validator
//
//go:embed openapi.yaml
var OpenAPI []byte
