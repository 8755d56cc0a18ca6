package api

import (
	"net/http"
)

// errorResponse is the error envelope returned by every endpoint.
type errorResponse struct {
	Error string `json:"error"`
}

// User-facing error messages.
const (
	msgUnauthenticated = "Não autenticado"
	msgUserNotFound    = "Usuário não encontrado"
	msgForbidden       = "Acesso negado"
	msgVideoNotFound   = "Vídeo não encontrado"
	msgInternal        = "Erro interno do servidor"
)

// apierror writes the JSON error envelope with the given status.
func apierror(w http.ResponseWriter, msg string, status int) {
	serveJSONStatus(errorResponse{Error: msg}, w, status)
}
