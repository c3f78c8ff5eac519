package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// FunctionAllowedHeaders are the request headers browser clients send when
// invoking a function with the Supabase JS client.
const FunctionAllowedHeaders = "authorization, x-client-info, apikey, content-type"

// CORSHandler returns options for the read API routes.
func CORSHandler(allowedOrigins []string) cors.Options {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	// When wildcard is used, disable AllowCredentials to prevent CSRF
	allowCreds := true
	for _, o := range allowedOrigins {
		if o == "*" {
			allowCreds = false
			break
		}
	}

	return cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: allowCreds,
		MaxAge:           300,
	}
}

// FunctionCORS puts the permissive function headers on every response and
// answers any OPTIONS request with an empty 200, preflight or not.
func FunctionCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", FunctionAllowedHeaders)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
