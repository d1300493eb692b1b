package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/google/uuid"
	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gopkg.in/yaml.v3"

	"github.com/funvibe/funvar/internal/specfile"
	"github.com/funvibe/funvar/pkg/engine"
	"github.com/funvibe/funvar/pkg/typesystem"
)

// Server serves the Binder service backed by an engine.
type Server struct {
	logger *slog.Logger
	engine *engine.Engine

	fd  *desc.FileDescriptor
	svc *desc.ServiceDescriptor
}

func NewServer(logger *slog.Logger, eng *engine.Engine) (*Server, error) {
	fd, svc, err := parseBinderProto()
	if err != nil {
		return nil, err
	}
	return &Server{logger: logger, engine: eng, fd: fd, svc: svc}, nil
}

// RegisterWith registers the Binder service on a grpc server.
func (s *Server) RegisterWith(g *grpc.Server) {
	g.RegisterService(s.serviceDesc(), s)
}

// Serve listens on addr and serves until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.ServeListener(ctx, lis)
}

// ServeListener serves on lis until ctx is cancelled, then stops
// gracefully. The listener is closed on return.
func (s *Server) ServeListener(ctx context.Context, lis net.Listener) error {
	g := grpc.NewServer()
	s.RegisterWith(g)

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			g.GracefulStop()
		case <-done:
		}
	}()

	s.logger.Info("binder service listening", "addr", lis.Addr().String())
	err := g.Serve(lis)
	close(done)
	return err
}

// serviceDesc assembles the grpc service descriptor from the parsed proto.
// Every method routes through handleUnary with its method descriptor.
func (s *Server) serviceDesc() *grpc.ServiceDesc {
	sd := &grpc.ServiceDesc{
		ServiceName: s.svc.GetFullyQualifiedName(),
		HandlerType: (*interface{})(nil),
		Metadata:    s.fd.GetName(),
	}
	for _, method := range s.svc.GetMethods() {
		md := method
		sd.Methods = append(sd.Methods, grpc.MethodDesc{
			MethodName: md.GetName(),
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
				return srv.(*Server).handleUnary(ctx, md, dec)
			},
		})
	}
	return sd
}

func (s *Server) handleUnary(ctx context.Context, md *desc.MethodDescriptor, dec func(interface{}) error) (interface{}, error) {
	in := dynamic.NewMessage(md.GetInputType())
	if err := dec(in); err != nil {
		return nil, err
	}
	out := dynamic.NewMessage(md.GetOutputType())

	var err error
	switch md.GetName() {
	case "Validate":
		err = s.validate(in, out)
	case "Bind":
		err = s.bind(in, out)
	case "Resolve":
		err = s.resolve(in, out)
	default:
		err = status.Errorf(codes.Unimplemented, "method %s not implemented", md.GetName())
	}
	if err != nil {
		s.logger.Debug("rpc rejected", "method", md.GetName(), "err", err)
		return nil, err
	}
	return out, nil
}

func (s *Server) validate(in, out *dynamic.Message) error {
	name := getString(in, "name")
	var nodes []specfile.ParamNode
	if err := yaml.Unmarshal([]byte(getString(in, "params")), &nodes); err != nil {
		return status.Errorf(codes.InvalidArgument, "parsing params: %v", err)
	}
	list, err := specfile.DecodeParams(nodes)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "decoding params: %v", err)
	}

	def, err := s.engine.ValidateDefinition(name, list)
	out.SetFieldByName("id", def.ID.String())
	if err != nil {
		var de *typesystem.DefinitionError
		if errors.As(err, &de) {
			out.SetFieldByName("error_code", string(de.Code))
			out.SetFieldByName("error_param", int32(de.Param))
		} else {
			out.SetFieldByName("error_param", int32(-1))
		}
		out.SetFieldByName("error", err.Error())
	}
	return nil
}

func (s *Server) bind(in, out *dynamic.Message) error {
	id, err := uuid.Parse(getString(in, "id"))
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "parsing definition id: %v", err)
	}
	def, ok := s.engine.Definition(id)
	if !ok {
		return status.Errorf(codes.NotFound, "unknown definition %s", id)
	}
	var nodes []specfile.Node
	if err := yaml.Unmarshal([]byte(getString(in, "args")), &nodes); err != nil {
		return status.Errorf(codes.InvalidArgument, "parsing args: %v", err)
	}
	args, err := specfile.DecodeTypes(nodes)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "decoding args: %v", err)
	}

	sub, err := s.engine.BindCall(def, args)
	if err != nil {
		code, pos := errorCode(err)
		out.SetFieldByName("error_code", code)
		out.SetFieldByName("error_arg", int32(pos))
		out.SetFieldByName("error", err.Error())
		return nil
	}
	data, err := specfile.EncodeSubst(sub)
	if err != nil {
		return status.Errorf(codes.Internal, "encoding substitution: %v", err)
	}
	out.SetFieldByName("subst", string(data))
	out.SetFieldByName("rendered", sub.String())
	return nil
}

func (s *Server) resolve(in, out *dynamic.Message) error {
	var node specfile.Node
	if err := yaml.Unmarshal([]byte(getString(in, "expr")), &node); err != nil {
		return status.Errorf(codes.InvalidArgument, "parsing expr: %v", err)
	}
	expr, err := specfile.DecodeType(node)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "decoding expr: %v", err)
	}
	sub, err := specfile.DecodeSubst([]byte(getString(in, "subst")))
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "decoding subst: %v", err)
	}

	res, err := s.engine.Resolve(expr, sub)
	if err != nil {
		code, _ := errorCode(err)
		out.SetFieldByName("error_code", code)
		out.SetFieldByName("error", err.Error())
		return nil
	}
	rn, err := specfile.EncodeType(res)
	if err != nil {
		return status.Errorf(codes.Internal, "encoding result: %v", err)
	}
	data, err := yaml.Marshal(rn)
	if err != nil {
		return status.Errorf(codes.Internal, "encoding result: %v", err)
	}
	out.SetFieldByName("result", string(data))
	out.SetFieldByName("rendered", res.String())
	return nil
}

// errorCode extracts the taxonomy code and position from an engine error.
// Position is -1 when the failure has no single position.
func errorCode(err error) (string, int) {
	var de *typesystem.DefinitionError
	if errors.As(err, &de) {
		return string(de.Code), de.Param
	}
	var be *typesystem.BindError
	if errors.As(err, &be) {
		return string(be.Code), be.Arg
	}
	return "", -1
}

func getString(m *dynamic.Message, name string) string {
	s, _ := m.GetFieldByName(name).(string)
	return s
}
