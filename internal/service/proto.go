// Package service exposes the binding contract over gRPC for
// out-of-process front-ends. The service definition is embedded as proto
// source and parsed at runtime into descriptors; requests and replies are
// dynamic messages, no generated stubs. Type expressions, parameter lists
// and substitutions travel as YAML documents in the specfile schema.
package service

import (
	"fmt"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
)

const (
	protoPath   = "funvar/v1/binder.proto"
	serviceName = "funvar.v1.Binder"
)

// Engine-level failures land in the reply's error_code / error fields and
// never surface as transport errors; transport codes are reserved for
// malformed requests. error_param / error_arg are meaningful only when
// error_code is set, with -1 for failures that have no single position.
const protoSource = `
syntax = "proto3";

package funvar.v1;

service Binder {
  rpc Validate(ValidateRequest) returns (ValidateReply);
  rpc Bind(BindRequest) returns (BindReply);
  rpc Resolve(ResolveRequest) returns (ResolveReply);
}

message ValidateRequest {
  string name = 1;
  // YAML parameter list in the specfile schema.
  string params = 2;
}

message ValidateReply {
  // Deterministic definition identity; set even when validation fails.
  string id = 1;
  string error_code = 2;
  int32 error_param = 3;
  string error = 4;
}

message BindRequest {
  // Definition identity returned by Validate.
  string id = 1;
  // YAML list of type nodes in the specfile schema.
  string args = 2;
}

message BindReply {
  // YAML substitution document, suitable for ResolveRequest.subst.
  string subst = 1;
  string rendered = 2;
  string error_code = 3;
  int32 error_arg = 4;
  string error = 5;
}

message ResolveRequest {
  // YAML type node in the specfile schema.
  string expr = 1;
  // YAML substitution document from BindReply.subst.
  string subst = 2;
}

message ResolveReply {
  // YAML type node for the resolved expression.
  string result = 1;
  string rendered = 2;
  string error_code = 3;
  string error = 4;
}
`

// parseBinderProto builds descriptors for the embedded service definition.
func parseBinderProto() (*desc.FileDescriptor, *desc.ServiceDescriptor, error) {
	parser := protoparse.Parser{
		Accessor: protoparse.FileContentsFromMap(map[string]string{
			protoPath: protoSource,
		}),
	}
	fds, err := parser.ParseFiles(protoPath)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing embedded proto: %w", err)
	}
	fd := fds[0]
	sd := fd.FindService(serviceName)
	if sd == nil {
		return nil, nil, fmt.Errorf("service %s not found in embedded proto", serviceName)
	}
	return fd, sd, nil
}
