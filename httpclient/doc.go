// Package httpclient provides the request client used by the dashkit data
// layer: per-attempt timeout enforcement, retry with exponential backoff,
// ordered request/response interceptor chains, and a single structured
// error type covering network, client, server, and timeout failures.
//
// # Basic Usage
//
//	client := httpclient.New(httpclient.Config{
//	    BaseURL: "https://api.example.com",
//	    Timeout: 10 * time.Second,
//	})
//
//	resp, err := client.Get(ctx, "/metrics/cpu")
//	if err != nil {
//	    var reqErr *httpclient.Error
//	    if errors.As(err, &reqErr) && reqErr.IsServerError() {
//	        // transient; a caller-side fallback may apply
//	    }
//	}
//
// # Interceptors
//
// Interceptors are registered at setup time and run in registration order,
// each seeing the previous one's output:
//
//	client.AddRequestInterceptor(httpclient.RequestIDInterceptor())
//	client.AddRequestInterceptor(httpclient.BearerTokenInterceptor(tokenFn))
//
// # Error taxonomy
//
// Every failure surfaces as a *Error. Classification is derived from the
// status field: status 0 means no response was received (connection failure
// or timeout), 4xx means the request was rejected and will not be retried,
// 5xx means the server failed and the call is retried with backoff capped
// at 30 seconds.
package httpclient
