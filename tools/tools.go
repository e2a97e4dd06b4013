//go:build tools

package tools

// Pins the protoc plugin used to regenerate protos/gen from protos/.
import (
	_ "google.golang.org/grpc/cmd/protoc-gen-go-grpc"
)
