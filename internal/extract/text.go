package extract

import (
	"bytes"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// plainText decodes UTF-8, dropping a BOM and replacing invalid sequences.
func plainText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	return strings.ToValidUTF8(string(data), "�"), nil
}
