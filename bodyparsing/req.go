// Package bodyparsing extracts request body content into address values
// within configured length limits.
package bodyparsing

import (
	"encoding/json"
	"io"
	"io/ioutil"
	"mime"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"webshield/waf"
)

// NewRequestBodyParser creates a RequestBodyParser.
func NewRequestBodyParser(lengthLimits waf.LengthLimits) waf.RequestBodyParser {
	return &reqBodyParserImpl{
		lengthLimits: lengthLimits,
	}
}

type reqBodyParserImpl struct {
	lengthLimits waf.LengthLimits
}

func (r *reqBodyParserImpl) LengthLimits() waf.LengthLimits {
	return r.lengthLimits
}

// Parse reads the body within the configured limits and returns it in the
// shape the body address carries: a field map for form and JSON object
// bodies, a raw value for other parsable JSON. Unsupported content types
// yield a nil value, meaning the address is simply unavailable.
func (r *reqBodyParserImpl) Parse(logger zerolog.Logger, req waf.RequestBodyParserHTTPRequest) (value interface{}, err error) {
	contentLength, contentType := lengthAndTypeFromHeaders(req)

	// If the headers already up front said that the request is going to be too large, there's no point in reading the body.
	if contentLength > r.lengthLimits.MaxLengthTotal {
		err = waf.ErrTotalBytesLimitExceeded
		return
	}

	body, err := readWithLimit(req.BodyReader(), r.lengthLimits.MaxLengthTotal)
	if err != nil {
		return
	}
	if len(body) == 0 {
		return
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)

	switch mediaType {

	case "application/x-www-form-urlencoded":
		var form url.Values
		form, err = url.ParseQuery(string(body))
		if err != nil {
			return
		}
		value, err = r.fieldMap(form)

	case "application/json", "text/json":
		var parsed interface{}
		if err = json.Unmarshal(body, &parsed); err != nil {
			return
		}
		if len(body) > r.lengthLimits.MaxLengthPausable {
			err = waf.ErrPausableBytesLimitExceeded
			return
		}
		value = parsed

	default:
		logger.Debug().Str("contentType", contentType).Msg("No body parser for content type")
	}

	return
}

// fieldMap converts parsed form fields to the address value shape while
// enforcing the per-field and cumulative limits.
func (r *reqBodyParserImpl) fieldMap(form url.Values) (value interface{}, err error) {
	fields := make(map[string]interface{}, len(form))
	total := 0
	for name, vs := range form {
		for _, v := range vs {
			if len(v) > r.lengthLimits.MaxLengthField {
				err = waf.ErrFieldBytesLimitExceeded
				return
			}
			total += len(v)
		}
		if total > r.lengthLimits.MaxLengthPausable {
			err = waf.ErrPausableBytesLimitExceeded
			return
		}
		if len(vs) == 1 {
			fields[name] = vs[0]
		} else {
			fields[name] = vs
		}
	}
	value = fields
	return
}

func readWithLimit(reader io.Reader, limit int) (body []byte, err error) {
	body, err = ioutil.ReadAll(io.LimitReader(reader, int64(limit)+1))
	if err != nil {
		return
	}
	if len(body) > limit {
		err = waf.ErrTotalBytesLimitExceeded
	}
	return
}

func lengthAndTypeFromHeaders(req waf.RequestBodyParserHTTPRequest) (contentLength int, contentType string) {
	for _, h := range req.Headers() {
		k := strings.ToLower(h.Key())
		switch k {
		case "content-length":
			contentLength, _ = strconv.Atoi(h.Value())
		case "content-type":
			contentType = h.Value()
		}
	}
	return
}
