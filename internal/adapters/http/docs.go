package http

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/cargoconnect/gateway/internal/pkg/logging"
)

const (
	defaultSpecPath = "api/openapi.yaml"
	docsRoute       = "/docs"
	specRoute       = docsRoute + "/openapi.yaml"
	swaggerUIDist   = "https://cdn.jsdelivr.net/npm/swagger-ui-dist@5"
)

var docsPage = strings.NewReplacer("{{dist}}", swaggerUIDist, "{{spec}}", specRoute).Replace(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Cargo Connect Gateway API</title>
<link rel="stylesheet" href="{{dist}}/swagger-ui.css"></head>
<body><div id="ui"></div>
<script src="{{dist}}/swagger-ui-bundle.js"></script>
<script>SwaggerUIBundle({url: "{{spec}}", dom_id: "#ui", deepLinking: true});</script>
</body>
</html>`)

// SetupDocs serves the browsable API reference and the raw OpenAPI document,
// read from specPath on every request.
func SetupDocs(app *fiber.App, specPath string) {
	if specPath == "" {
		specPath = defaultSpecPath
	}

	app.Get(docsRoute, func(c *fiber.Ctx) error {
		c.Type("html", "utf-8")
		return c.SendString(docsPage)
	})

	app.Get(specRoute, func(c *fiber.Ctx) error {
		data, err := os.ReadFile(specPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return errNotFound(c, "API document not found")
		case err != nil:
			logging.FromContext(c.UserContext()).Warn("read API document", "path", specPath, "error", err)
			return errNotFound(c, "API document not available")
		}
		c.Set(fiber.HeaderContentType, "application/yaml")
		return c.Send(data)
	})
}
