package api

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// BodyMiddleware caps request bodies at maxSize bytes after transparently
// decompressing gzip-encoded payloads. Invalid gzip payloads are rejected
// with a 400 response before reaching the handler.
func BodyMiddleware(maxSize int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || req.Body == http.NoBody {
				return next(c)
			}

			if hasGzipEncoding(req.Header.Get(echo.HeaderContentEncoding)) {
				body := req.Body
				gr, err := gzip.NewReader(body)
				if err != nil {
					_ = body.Close()
					return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid gzip body"})
				}
				req.Body = &gzipReadCloser{Reader: gr, body: body}
				req.ContentLength = -1
				req.Header.Del(echo.HeaderContentEncoding)
				req.Header.Del(echo.HeaderContentLength)
			}

			req.Body = http.MaxBytesReader(c.Response(), req.Body, maxSize)
			return next(c)
		}
	}
}

func hasGzipEncoding(header string) bool {
	for _, enc := range strings.Split(header, ",") {
		if strings.EqualFold(strings.TrimSpace(enc), "gzip") {
			return true
		}
	}
	return false
}

type gzipReadCloser struct {
	*gzip.Reader
	body io.Closer
}

func (g *gzipReadCloser) Close() error {
	err := g.Reader.Close()
	if cerr := g.body.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
