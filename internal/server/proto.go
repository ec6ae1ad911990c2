package server

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
)

//go:embed classifier.proto
var classifierProto string

const (
	protoFileName = "classifier.proto"
	ServiceName   = "matchkit.v1.Classifier"

	classifyMethod     = "Classify"
	listRuleSetsMethod = "ListRuleSets"
)

var (
	descOnce sync.Once
	descFile *desc.FileDescriptor
	descErr  error
)

// descriptors parses the embedded service definition once per process.
func descriptors() (*desc.FileDescriptor, error) {
	descOnce.Do(func() {
		parser := protoparse.Parser{
			Accessor: protoparse.FileContentsFromMap(map[string]string{
				protoFileName: classifierProto,
			}),
		}
		fds, err := parser.ParseFiles(protoFileName)
		if err != nil {
			descErr = fmt.Errorf("failed to parse proto: %w", err)
			return
		}
		descFile = fds[0]
	})
	return descFile, descErr
}

func findService(fd *desc.FileDescriptor) (*desc.ServiceDescriptor, error) {
	sd := fd.FindService(ServiceName)
	if sd == nil {
		return nil, fmt.Errorf("service %s not found in %s", ServiceName, protoFileName)
	}
	return sd, nil
}

func findMessage(fd *desc.FileDescriptor, name string) (*desc.MessageDescriptor, error) {
	md := fd.FindMessage("matchkit.v1." + name)
	if md == nil {
		return nil, fmt.Errorf("message type %s not found", name)
	}
	return md, nil
}

func methodPath(method string) string {
	return "/" + ServiceName + "/" + method
}
