package service

import (
	"context"
	"fmt"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"gopkg.in/yaml.v3"

	"github.com/funvibe/funvar/internal/specfile"
)

// Client invokes the Binder service over an existing connection with
// dynamic messages.
type Client struct {
	conn *grpc.ClientConn
	svc  *desc.ServiceDescriptor
}

func NewClient(conn *grpc.ClientConn) (*Client, error) {
	_, svc, err := parseBinderProto()
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, svc: svc}, nil
}

// ValidateResult mirrors ValidateReply. Err is empty on success.
type ValidateResult struct {
	ID         string
	ErrorCode  string
	ErrorParam int
	Err        string
}

// BindResult mirrors BindReply. Subst is a YAML substitution document
// accepted by Resolve.
type BindResult struct {
	Subst     string
	Rendered  string
	ErrorCode string
	ErrorArg  int
	Err       string
}

// ResolveResult mirrors ResolveReply.
type ResolveResult struct {
	Result    string
	Rendered  string
	ErrorCode string
	Err       string
}

func (c *Client) Validate(ctx context.Context, name string, params []specfile.ParamNode) (ValidateResult, error) {
	data, err := yaml.Marshal(params)
	if err != nil {
		return ValidateResult{}, fmt.Errorf("encoding params: %w", err)
	}
	reply, err := c.invoke(ctx, "Validate", map[string]string{
		"name":   name,
		"params": string(data),
	})
	if err != nil {
		return ValidateResult{}, err
	}
	return ValidateResult{
		ID:         getString(reply, "id"),
		ErrorCode:  getString(reply, "error_code"),
		ErrorParam: getInt(reply, "error_param"),
		Err:        getString(reply, "error"),
	}, nil
}

func (c *Client) Bind(ctx context.Context, id string, args []specfile.Node) (BindResult, error) {
	data, err := yaml.Marshal(args)
	if err != nil {
		return BindResult{}, fmt.Errorf("encoding args: %w", err)
	}
	reply, err := c.invoke(ctx, "Bind", map[string]string{
		"id":   id,
		"args": string(data),
	})
	if err != nil {
		return BindResult{}, err
	}
	return BindResult{
		Subst:     getString(reply, "subst"),
		Rendered:  getString(reply, "rendered"),
		ErrorCode: getString(reply, "error_code"),
		ErrorArg:  getInt(reply, "error_arg"),
		Err:       getString(reply, "error"),
	}, nil
}

func (c *Client) Resolve(ctx context.Context, expr specfile.Node, subst string) (ResolveResult, error) {
	data, err := yaml.Marshal(expr)
	if err != nil {
		return ResolveResult{}, fmt.Errorf("encoding expr: %w", err)
	}
	reply, err := c.invoke(ctx, "Resolve", map[string]string{
		"expr":  string(data),
		"subst": subst,
	})
	if err != nil {
		return ResolveResult{}, err
	}
	return ResolveResult{
		Result:    getString(reply, "result"),
		Rendered:  getString(reply, "rendered"),
		ErrorCode: getString(reply, "error_code"),
		Err:       getString(reply, "error"),
	}, nil
}

func (c *Client) invoke(ctx context.Context, method string, fields map[string]string) (*dynamic.Message, error) {
	md := c.svc.FindMethodByName(method)
	if md == nil {
		return nil, fmt.Errorf("method %s not found in service descriptor", method)
	}
	req := dynamic.NewMessage(md.GetInputType())
	for name, val := range fields {
		req.SetFieldByName(name, val)
	}
	reply := dynamic.NewMessage(md.GetOutputType())
	path := fmt.Sprintf("/%s/%s", c.svc.GetFullyQualifiedName(), method)
	if err := c.conn.Invoke(ctx, path, req, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func getInt(m *dynamic.Message, name string) int {
	v, _ := m.GetFieldByName(name).(int32)
	return int(v)
}
