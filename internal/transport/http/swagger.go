package http

import (
	"net/http"

	"github.com/ghodss/yaml"
	"github.com/labstack/echo/v4"
	"github.com/samber/oops"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/njprem/web-starter-api/docs"
)

// RegisterSwagger serves the embedded OpenAPI document as JSON together with
// the Swagger UI under /swagger.
func RegisterSwagger(e *echo.Echo) error {
	spec, err := yaml.YAMLToJSON(docs.SwaggerYAML)
	if err != nil {
		return oops.Code("SWAGGER_SPEC_INVALID").Wrapf(err, "convert swagger spec")
	}

	e.GET("/swagger/doc.json", func(c echo.Context) error {
		return c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, spec)
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	return nil
}
