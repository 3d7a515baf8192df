package connect

import (
	"context"
	"strings"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls PlayerService procedures.
type Client struct {
	httpClient connect.HTTPClient
	baseURL    string
	token      string
	opts       []connect.ClientOption
}

// NewClient creates a client for the server at baseURL. The token is sent with every call
// when non-empty.
func NewClient(httpClient connect.HTTPClient, baseURL, token string, opts ...connect.ClientOption) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		opts:       opts,
	}
}

// Call invokes a unary procedure with the given fields and returns the reply.
func (c *Client) Call(ctx context.Context, procedure string, fields map[string]any) (*structpb.Struct, error) {
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode request")
	}

	client := connect.NewClient[structpb.Struct, structpb.Struct](c.httpClient, c.baseURL+procedure, c.opts...)
	resp, err := client.CallUnary(ctx, c.request(msg))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// Subscribe streams notifications to fn until ctx is done, the server closes the stream
// or fn returns an error.
func (c *Client) Subscribe(ctx context.Context, fn func(*structpb.Struct) error) error {
	client := connect.NewClient[structpb.Struct, structpb.Struct](
		c.httpClient, c.baseURL+PlayerServiceSubscribeProcedure, c.opts...,
	)
	stream, err := client.CallServerStream(ctx, c.request(&structpb.Struct{}))
	if err != nil {
		return err
	}
	defer stream.Close()

	for stream.Receive() {
		if err := fn(stream.Msg()); err != nil {
			return err
		}
	}
	return stream.Err()
}

func (c *Client) request(msg *structpb.Struct) *connect.Request[structpb.Struct] {
	req := connect.NewRequest(msg)
	if c.token != "" {
		req.Header().Set(ControlTokenHeader, c.token)
	}
	return req
}
