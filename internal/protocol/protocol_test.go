package protocol_test

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ignitekv/ignite/internal/protocol"
)

func TestReadRequestParsesValidSetLine(t *testing.T) {
	r := bufio.NewReader(lineReader("{\"op\":\"set\",\"key\":\"k1\",\"value\":\"v1\"}\n"))
	req, err := protocol.ReadRequest(r)
	require.NoError(t, err)
	require.Equal(t, protocol.OpSet, req.Op)
	require.Equal(t, "k1", req.Key)
	require.Equal(t, "v1", req.Value)
}

func TestReadRequestRejectsUnknownOp(t *testing.T) {
	r := bufio.NewReader(lineReader("{\"op\":\"scan\",\"key\":\"k1\"}\n"))
	_, err := protocol.ReadRequest(r)
	require.Error(t, err)
}

func TestReadRequestRejectsMalformedJSON(t *testing.T) {
	r := bufio.NewReader(lineReader("not json\n"))
	_, err := protocol.ReadRequest(r)
	require.Error(t, err)
}

func TestWriteResponseRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, protocol.WriteResponse(&buf, &protocol.Response{OK: true, Value: "v1"}))

	resp, err := protocol.ReadResponse(bufio.NewReader(&buf))
	require.NoError(t, err)
	require.True(t, resp.OK)
	require.Equal(t, "v1", resp.Value)
}

func lineReader(s string) *bytes.Reader {
	return bytes.NewReader([]byte(s))
}
