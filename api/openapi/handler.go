// Package openapi serves the OpenAPI 3.1 document generated from the
// registered Huma operations, plus a Swagger UI over it.
package openapi

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/labstack/echo/v4"
)

const swaggerUIHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>POS Inventory Dashboard API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: "/swagger/swagger.json",
      dom_id: "#swagger-ui",
      presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
      layout: "BaseLayout",
    });
  </script>
</body>
</html>`

// RegisterRoutes adds the Swagger UI and document endpoints. The document is
// rendered per request, so operations registered after this call appear.
func RegisterRoutes(e *echo.Echo, api huma.API) {
	e.GET("/swagger/swagger.json", document(api, "application/json", (*huma.OpenAPI).MarshalJSON))
	e.GET("/swagger/swagger.yaml", document(api, "text/yaml", (*huma.OpenAPI).YAML))
	e.GET("/swagger/index.html", func(c echo.Context) error {
		return c.HTML(http.StatusOK, swaggerUIHTML)
	})
	for _, p := range []string{"/swagger", "/swagger/"} {
		e.GET(p, func(c echo.Context) error {
			return c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
		})
	}
}

func document(api huma.API, contentType string, render func(*huma.OpenAPI) ([]byte, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		data, err := render(api.OpenAPI())
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "rendering OpenAPI document failed").SetInternal(err)
		}
		return c.Blob(http.StatusOK, contentType, data)
	}
}
