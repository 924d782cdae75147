package internal

const (
	COOKIE_ACCESS_TOKEN_NAME = "fundacion_access_token"
	COOKIE_REDIRECT_NAME     = "fundacion_redirect"
)
