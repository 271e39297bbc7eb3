// Package views は埋め込みの HTML テンプレートを提供します。
package views

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var files embed.FS

// Templates は全テンプレートを解析して返します。テンプレート名はファイル名です。
func Templates() (*template.Template, error) {
	return template.ParseFS(files, "templates/*.html")
}
