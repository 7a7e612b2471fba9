package library

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/grpcreflect"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Every rpc becomes a function named Service.Method. The request fields are
// its parameters; a response with two or more fields is multi-output, keyed
// by field name.

// Services under this prefix are skipped when listing over reflection.
const reflectionServicePrefix = "grpc.reflection."

// LoadProtoFiles parses .proto files and describes every rpc they declare.
func LoadProtoFiles(importPaths []string, files ...string) ([]*FunctionDescriptor, error) {
	parser := protoparse.Parser{ImportPaths: importPaths}
	if len(parser.ImportPaths) == 0 {
		parser.ImportPaths = []string{"."}
	}
	return parseProto(parser, files)
}

// LoadProtoSource parses proto definitions held in memory, keyed by file name.
func LoadProtoSource(sources map[string]string) ([]*FunctionDescriptor, error) {
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	parser := protoparse.Parser{Accessor: protoparse.FileContentsFromMap(sources)}
	return parseProto(parser, names)
}

func parseProto(parser protoparse.Parser, files []string) ([]*FunctionDescriptor, error) {
	parser.IncludeSourceCodeInfo = true
	fds, err := parser.ParseFiles(files...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse proto: %w", err)
	}

	var descs []*FunctionDescriptor
	for _, fd := range fds {
		for _, sd := range fd.GetServices() {
			descs = append(descs, describeService(sd)...)
		}
	}
	return descs, nil
}

// LoadReflection dials target and describes every service it exposes
// through gRPC server reflection.
func LoadReflection(ctx context.Context, target string) ([]*FunctionDescriptor, error) {
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", target, err)
	}
	defer conn.Close()

	return loadReflection(ctx, conn)
}

func loadReflection(ctx context.Context, conn grpc.ClientConnInterface) ([]*FunctionDescriptor, error) {
	client := grpcreflect.NewClientAuto(ctx, conn)
	defer client.Reset()

	services, err := client.ListServices()
	if err != nil {
		return nil, fmt.Errorf("listing services: %w", err)
	}
	sort.Strings(services)

	var descs []*FunctionDescriptor
	for _, name := range services {
		if strings.HasPrefix(name, reflectionServicePrefix) {
			continue
		}
		sd, err := client.ResolveService(name)
		if err != nil {
			return nil, fmt.Errorf("resolving service %s: %w", name, err)
		}
		descs = append(descs, describeService(sd)...)
	}
	return descs, nil
}

func describeService(sd *desc.ServiceDescriptor) []*FunctionDescriptor {
	var descs []*FunctionDescriptor
	for _, md := range sd.GetMethods() {
		if md.IsClientStreaming() || md.IsServerStreaming() {
			continue
		}
		d := &FunctionDescriptor{
			Name:        md.GetName(),
			ClassName:   sd.GetName(),
			Kind:        KindFunction,
			Description: strings.TrimSpace(md.GetSourceInfo().GetLeadingComments()),
		}
		for _, fld := range md.GetInputType().GetFields() {
			d.Params = append(d.Params, Parameter{Name: fld.GetName(), Type: protoTypeName(fld)})
		}

		out := md.GetOutputType()
		fields := out.GetFields()
		if len(fields) > 1 {
			for _, fld := range fields {
				d.ReturnKeys = append(d.ReturnKeys, fld.GetName())
			}
		} else {
			d.ReturnType = out.GetName()
		}
		descs = append(descs, d)
	}
	return descs
}

// protoTypeName renders a field type the way it appears in .proto source.
func protoTypeName(fld *desc.FieldDescriptor) string {
	var name string
	switch fld.GetType() {
	case descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, descriptorpb.FieldDescriptorProto_TYPE_GROUP:
		name = fld.GetMessageType().GetName()
	case descriptorpb.FieldDescriptorProto_TYPE_ENUM:
		name = fld.GetEnumType().GetName()
	default:
		name = strings.ToLower(strings.TrimPrefix(fld.GetType().String(), "TYPE_"))
	}
	if fld.IsRepeated() && !fld.IsMap() {
		name = "[]" + name
	}
	return name
}
