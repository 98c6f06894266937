// Package meteofrance is the transport shared by the Météo-France public API
// clients: credential handling, request execution and error classification.
//
// # Authentication
//
// The portal issues three kinds of credentials:
//
//	API key        sent as the "apikey" header, never expires
//	Bearer token   sent as "Authorization: Bearer <jwt>", valid for one hour
//	Application id base64 "client_id:client_secret", exchanged for a token at
//	               https://portail-api.meteofrance.fr/token
//
// With an application id the client mints tokens on demand. When the gateway
// answers 401 with code 900901 ("Invalid JWT token") the cached token is
// dropped, a new one is minted, and the request is sent again once.
//
// # Errors
//
// Every failure is one of three types:
//
//	*ConfigurationError  invalid settings, returned by New
//	*AuthError           401/403 from the API or from the token exchange
//	*UpstreamError       any other non-2xx status, transport error, timeout,
//	                     or a payload that does not have the expected shape
//
// A 404 is an *UpstreamError that also matches ErrNoData, which the API uses
// when a product has nothing published.
package meteofrance
