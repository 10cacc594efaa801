package models

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviseRequestRevisionTypeDecoding(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    RevisionType
		wantErr bool
	}{
		{name: "number", body: `{"draft":"d","revisionType":1}`, want: RevisionImpact},
		{name: "string", body: `{"draft":"d","revisionType":"2"}`, want: RevisionAssertive},
		{name: "out of range", body: `{"draft":"d","revisionType":3}`, want: 3, wantErr: true},
		{name: "garbage", body: `{"draft":"d","revisionType":"two"}`, want: -1, wantErr: true},
		{name: "missing", body: `{"draft":"d"}`, want: 0, wantErr: true},
		{name: "null", body: `{"draft":"d","revisionType":null}`, want: 0, wantErr: true},
		{name: "integral float", body: `{"draft":"d","revisionType":1.0}`, want: RevisionImpact},
		{name: "integral float string", body: `{"draft":"d","revisionType":" 2.0 "}`, want: RevisionAssertive},
		{name: "fraction", body: `{"draft":"d","revisionType":1.5}`, want: -1, wantErr: true},
		{name: "empty string", body: `{"draft":"d","revisionType":""}`, want: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req ReviseRequest
			require.NoError(t, sonic.Unmarshal([]byte(tt.body), &req))
			assert.Equal(t, tt.want, req.RevisionType)
			if tt.wantErr {
				assert.Error(t, req.Validate())
			} else {
				assert.NoError(t, req.Validate())
			}
		})
	}
}

func TestRevisionTypeRejectsMalformedTokens(t *testing.T) {
	for _, raw := range []string{`"1`, `1"`, `[1]`, `true`} {
		var typ RevisionType
		require.NoError(t, typ.UnmarshalJSON([]byte(raw)))
		assert.Equal(t, RevisionType(-1), typ, raw)
	}
}

func TestReviseRequestRequiresDraft(t *testing.T) {
	req := ReviseRequest{Draft: "  ", RevisionType: RevisionImpact}
	assert.ErrorContains(t, req.Validate(), "draft")
}

func TestImagePromptsRequestValidate(t *testing.T) {
	assert.Error(t, ImagePromptsRequest{}.Validate())
	assert.NoError(t, ImagePromptsRequest{Draft: "S1"}.Validate())
}

func TestUploadedFileExt(t *testing.T) {
	assert.Equal(t, "pdf", UploadedFile{Name: "RFP.Final.PDF"}.Ext())
	assert.Equal(t, "", UploadedFile{Name: "README"}.Ext())
}

func TestPromptPayloadTextSkipsFiles(t *testing.T) {
	p := PromptPayload{Parts: []Part{
		FilePart(ExtractedContent{Kind: ContentEncodedFile, Filename: "a.pdf"}),
		TextPart("hello "),
		TextPart("world"),
	}}
	assert.Equal(t, "hello world", p.Text())
	require.Len(t, p.Files(), 1)
	assert.Equal(t, "a.pdf", p.Files()[0].Filename)
}
