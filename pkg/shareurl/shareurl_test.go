package shareurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/uidcrack/pkg/digits"
)

func TestParse(t *testing.T) {
	hash := digits.MD5(123, digits.Standard)

	cases := []struct {
		name    string
		url     string
		want    Link
		wantErr bool
	}{
		{
			name: "share button link",
			url:  "https://www.bilibili.com/video/BV1xx411c7mD/?share_source=copy_web&vd_source=" + hash,
			want: Link{Hash: hash, Encoding: digits.Standard},
		},
		{
			name: "address bar link",
			url:  "https://www.bilibili.com/video/BV1xx411c7mD/?spm_id_from=333.1007&vd_source=" + hash,
			want: Link{Hash: hash, Encoding: digits.NonStandard},
		},
		{
			name: "upper case hash is normalized",
			url:  "https://www.bilibili.com/video/BV1xx411c7mD/?vd_source=202CB962AC59075B964B07152D234B70",
			want: Link{Hash: "202cb962ac59075b964b07152d234b70", Encoding: digits.NonStandard},
		},
		{
			name: "other share source",
			url:  "https://www.bilibili.com/video/BV1xx411c7mD/?share_source=copy_link&vd_source=" + hash,
			want: Link{Hash: hash, Encoding: digits.NonStandard},
		},
		{
			name:    "app link without hash",
			url:     "https://b23.tv/BV1xx411c7mD?share_medium=android",
			wantErr: true,
		},
		{
			name:    "malformed hash",
			url:     "https://www.bilibili.com/video/BV1xx411c7mD/?vd_source=abc",
			wantErr: true,
		},
		{
			name:    "not a url",
			url:     "%zz",
			wantErr: true,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Parse(c.url)
			if c.wantErr {
				assert.ErrorIs(t, err, ErrNotCrackable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}
