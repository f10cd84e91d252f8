// Package imgur is a typed client for the read-only Imgur v3 REST API.
//
// Every response is wrapped in an envelope of the form
//
//	{"status": 200, "success": true, "data": ...}
//
// where data is either the requested payload or an error object. The wire
// format carries no discriminant, so [DecodeEnvelope] resolves data by shape:
// it tries the payload type first and falls back to [APIError]. A candidate
// only matches when it decodes cleanly and passes the validation rules
// declared on the type, so an error object is never mistaken for an empty
// payload. The status and success fields are informational.
//
// Callers resolve an envelope with [Envelope.Result]:
//
//	env, err := client.AlbumImages(ctx, "cXz3n")
//	if err != nil {
//	    return err // transport or decode failure
//	}
//	images, err := env.Result()
//	if err != nil {
//	    return err // the API said no; errors.Is(err, imgur.ErrAPI)
//	}
//
// All failures are reported as *[Error], tagged with a [Kind].
//
// A [Client] holds no per-call state and is safe for concurrent use.
package imgur
