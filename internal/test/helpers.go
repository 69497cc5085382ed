package test

import (
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

func BuildRequest(method, url, body string) *http.Request {
	req, _ := http.NewRequest(
		method,
		url,
		strings.NewReader(body),
	)
	req.Header.Set("Content-Type", "application/json")

	return req
}

func Logger() *zerolog.Logger {
	l := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("app", "ebike-flow-api").
		Logger()
	return &l
}
