package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func TestDecodeText(t *testing.T) {
	gbk, err := simplifiedchinese.GBK.NewEncoder().String("日期,收入\n2024-01-01,10\n")
	require.NoError(t, err)

	tests := []struct {
		name         string
		raw          []byte
		encodings    []string
		wantEncoding string
		wantTried    []string
		wantText     string
		wantErr      bool
	}{
		{
			name:         "utf-8 first",
			raw:          []byte("日期,收入\n"),
			encodings:    DefaultEncodings,
			wantEncoding: "utf-8",
			wantTried:    []string{"utf-8"},
			wantText:     "日期,收入\n",
		},
		{
			name:         "bom stripped",
			raw:          append([]byte{0xEF, 0xBB, 0xBF}, []byte("a,b\n")...),
			encodings:    DefaultEncodings,
			wantEncoding: "utf-8",
			wantTried:    []string{"utf-8"},
			wantText:     "a,b\n",
		},
		{
			name:         "gbk fallback",
			raw:          []byte(gbk),
			encodings:    DefaultEncodings,
			wantEncoding: "gbk",
			wantTried:    []string{"utf-8", "gbk"},
			wantText:     "日期,收入\n2024-01-01,10\n",
		},
		{
			name:         "order is configurable",
			raw:          []byte("plain,ascii\n"),
			encodings:    []string{"GB18030", "utf-8"},
			wantEncoding: "gb18030",
			wantTried:    []string{"gb18030"},
			wantText:     "plain,ascii\n",
		},
		{
			name:      "nothing decodes",
			raw:       []byte{'a', ',', 0xFF, '\n'},
			encodings: DefaultEncodings,
			wantTried: []string{"utf-8", "gbk", "gb2312"},
			wantErr:   true,
		},
		{
			name:      "unknown encoding is skipped",
			raw:       []byte{0xFF},
			encodings: []string{"no-such-encoding"},
			wantTried: []string{"no-such-encoding"},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := DecodeText(tt.raw, tt.encodings)
			assert.Equal(t, tt.wantTried, res.Tried)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantEncoding, res.Encoding)
			assert.Equal(t, tt.wantText, string(res.Text))
		})
	}
}
