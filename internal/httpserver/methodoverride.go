package httpserver

import (
	"mime"
	"net/http"
	"strings"
)

// MethodOverrideHeader はメソッド上書き用のヘッダー名です。
const MethodOverrideHeader = "X-HTTP-Method-Override"

// MethodOverrideParam はメソッド上書き用のクエリ／フォームのパラメータ名です。
const MethodOverrideParam = "_method"

var overridable = map[string]bool{
	http.MethodDelete: true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
}

// MethodOverride は POST リクエストのメソッドを、ヘッダー・クエリ・フォームの順に
// 見つかった値で書き換えます。HTML フォームから DELETE を送るために使います。
//
// gin はエンジンのミドルウェアより先にルートを決めるため、エンジン全体を包む形で使います。
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if method := overrideMethod(r); method != "" {
				r = r.Clone(r.Context())
				r.Method = method
			}
		}
		next.ServeHTTP(w, r)
	})
}

func overrideMethod(r *http.Request) string {
	value := r.Header.Get(MethodOverrideHeader)
	if value == "" {
		value = r.URL.Query().Get(MethodOverrideParam)
	}
	if value == "" && isURLEncodedForm(r) {
		value = r.PostFormValue(MethodOverrideParam)
	}
	method := strings.ToUpper(strings.TrimSpace(value))
	if !overridable[method] {
		return ""
	}
	return method
}

func isURLEncodedForm(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/x-www-form-urlencoded"
}
