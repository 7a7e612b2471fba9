package library

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/test/bufconn"
)

const geometryProto = `
syntax = "proto3";
package geometry;

message SplitRequest {
  string curve = 1;
  double parameter = 2;
}

message SplitResponse {
  string curve = 1;
  double length = 2;
  repeated double params = 3;
}

message Point { double x = 1; double y = 2; }
message PointRequest { Point origin = 1; }
message Length { double value = 1; }

service Curves {
  // Splits a curve at a parameter.
  rpc SplitAt(SplitRequest) returns (SplitResponse);
  rpc Measure(PointRequest) returns (Length);
  rpc Watch(SplitRequest) returns (stream Point);
}
`

func TestLoadProtoSource(t *testing.T) {
	descs, err := LoadProtoSource(map[string]string{"geometry.proto": geometryProto})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(descs) != 2 {
		t.Fatalf("expected 2 unary rpcs, got %d", len(descs))
	}

	split := descs[0]
	if split.QualifiedName() != "Curves.SplitAt" {
		t.Errorf("name = %q, want Curves.SplitAt", split.QualifiedName())
	}
	if split.MangledName() != "Curves.SplitAt@string,double" {
		t.Errorf("mangled = %q", split.MangledName())
	}
	wantKeys := []string{"curve", "length", "params"}
	if len(split.ReturnKeys) != len(wantKeys) {
		t.Fatalf("return keys = %v, want %v", split.ReturnKeys, wantKeys)
	}
	for i, k := range wantKeys {
		if split.ReturnKeys[i] != k {
			t.Errorf("return key %d = %q, want %q", i, split.ReturnKeys[i], k)
		}
	}
	if split.Description != "Splits a curve at a parameter." {
		t.Errorf("description = %q", split.Description)
	}

	measure := descs[1]
	if measure.Params[0].Type != "Point" {
		t.Errorf("param type = %q, want Point", measure.Params[0].Type)
	}
	if measure.IsMultiOutput() || measure.ReturnType != "Length" {
		t.Errorf("measure should have a single Length output, got keys %v type %q", measure.ReturnKeys, measure.ReturnType)
	}
}

func TestLoadProtoSource_Invalid(t *testing.T) {
	if _, err := LoadProtoSource(map[string]string{"bad.proto": "service {"}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadReflection(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, health.NewServer())
	reflection.Register(srv)
	go srv.Serve(lis)
	defer srv.Stop()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	descs, err := loadReflection(ctx, conn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var check *FunctionDescriptor
	for _, d := range descs {
		if d.ClassName == "grpc.reflection.v1.ServerReflection" || d.ClassName == "ServerReflection" {
			t.Errorf("reflection service should be skipped, got %s", d.QualifiedName())
		}
		if d.QualifiedName() == "Health.Check" {
			check = d
		}
	}
	if check == nil {
		t.Fatalf("Health.Check not described, got %d functions", len(descs))
	}
	if len(check.Params) != 1 || check.Params[0].Name != "service" {
		t.Errorf("params = %v, want [service]", check.Params)
	}
	if check.ReturnType != "HealthCheckResponse" {
		t.Errorf("return type = %q, want HealthCheckResponse", check.ReturnType)
	}
}
