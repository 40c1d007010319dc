/*
Copyright © 2025 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"html"
	"log"
	"strings"
	"time"

	"github.com/Seednode/papelito/games/papelito"
)

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

func newPage(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="es"><head>`)
	htmlBody.WriteString(getFavicon())
	htmlBody.WriteString(`<link rel="stylesheet" href="/assets/papelito/app.css">`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", html.EscapeString(title)))
	htmlBody.WriteString(fmt.Sprintf("<body class=\"plain\"><a href=\"/\">%s</a></body></html>", html.EscapeString(body)))

	return htmlBody.String()
}

// errorMessage describes a refused action for the client that sent it.
func errorMessage(err error) ErrorMessage {
	msg := ErrorMessage{
		Type:    "error",
		Kind:    string(papelito.KindInvariant),
		Code:    "unknown",
		Message: err.Error(),
	}

	var perr *papelito.Error
	if errors.As(err, &perr) {
		msg.Kind = string(perr.Kind)
		msg.Code = perr.Code
	}

	return msg
}
