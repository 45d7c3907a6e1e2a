package fetch

import (
	"bytes"
	"compress/gzip"
	"io"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// EncodingAuto makes the decoder try the candidate encodings instead of
// trusting a site-declared charset.
const EncodingAuto = "auto"

var gzipMagic = []byte{0x1f, 0x8b}

// Candidates tried in order when no hint applies. GB18030 before GBK since
// it supersets it, Big5 last for traditional pages.
var candidates = []encoding.Encoding{
	simplifiedchinese.GB18030,
	simplifiedchinese.GBK,
	traditionalchinese.Big5,
}

// Decoder turns raw response bytes into text. Decode never fails: input
// nothing can decode degrades to UTF-8 with the invalid bytes dropped.
type Decoder struct {
	logger *zap.Logger
}

func NewDecoder(logger *zap.Logger) *Decoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decoder{logger: logger}
}

// Decode decompresses gzip payloads that slipped past the transport (some
// servers compress without declaring it) and decodes the bytes, trying the
// hinted encoding first and falling back to the candidate cascade.
func (d *Decoder) Decode(raw []byte, hint string) string {
	raw = d.gunzip(raw)

	if hint != "" && hint != EncodingAuto {
		if text, ok := decodeAs(raw, hint); ok {
			return text
		}
		d.logger.Debug("hinted encoding failed, probing candidates", zap.String("encoding", hint))
	}

	if utf8.Valid(raw) {
		return string(raw)
	}
	for _, enc := range candidates {
		if text, ok := tryDecode(raw, enc); ok {
			return text
		}
	}

	return strings.ToValidUTF8(string(raw), "")
}

func (d *Decoder) gunzip(raw []byte) []byte {
	if !bytes.HasPrefix(raw, gzipMagic) {
		return raw
	}

	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		d.logger.Debug("gzip magic but no valid stream, keeping raw bytes", zap.Error(err))
		return raw
	}
	defer zr.Close()

	plain, err := io.ReadAll(zr)
	if err != nil {
		d.logger.Debug("gzip decompression failed, keeping raw bytes", zap.Error(err))
		return raw
	}
	return plain
}

// decodeAs resolves a charset label the way browsers do (gb2312 is served
// by the GBK table) and decodes with it.
func decodeAs(raw []byte, name string) (string, bool) {
	enc, err := htmlindex.Get(name)
	if err != nil {
		return "", false
	}
	return tryDecode(raw, enc)
}

// tryDecode accepts a result only when no byte had to be substituted with
// the replacement rune, i.e. the bytes really are that encoding.
func tryDecode(raw []byte, enc encoding.Encoding) (string, bool) {
	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	if bytes.ContainsRune(decoded, utf8.RuneError) {
		return "", false
	}
	return string(decoded), true
}
