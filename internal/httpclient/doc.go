// Package httpclient sends chat completion requests for llmload.
//
// A [RequestBuilder] encodes the payload once from configuration:
//
//	{"model": ..., "messages": [{"role": "user", "content": prompt}],
//	 "temperature": ..., "max_tokens": ..., "stream": false}
//
// Each built request gets its own X-Request-ID, the configured extra headers,
// an optional bearer token from an [auth.Provider] and, when tracing is on,
// W3C trace context.
//
// A [ChatRequester] is the [runner.Dispatcher] of a run:
//
//	client := httpclient.NewClient(cfg.Timeout, cfg.Concurrency)
//	builder, err := httpclient.NewRequestBuilder(cfg, auth.FromAPIKey(cfg.APIKey))
//	requester := httpclient.NewChatRequester(client, builder, cfg.ContentPath, tracer)
//	outcome := requester.Dispatch(ctx, 0)
//
// Latency runs from just before the request is sent until the response body
// has been read. Any 2xx status is a success if the generated text is found;
// other statuses become [runner.HTTPError] and everything else a
// [runner.TransportError].
package httpclient
