package status

import (
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	statuspb "google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/grpc/codes"
	"google.golang.org/protobuf/types/known/anypb"
)

// ErrorInfoDomain is the domain recorded on google.rpc.ErrorInfo details
// produced by this client.
const ErrorInfoDomain = "client.opsapi.fivetwenty.io"

// FromProto converts a google.rpc.Status into a *Status. Metadata attached
// via an ErrorInfo detail is restored; other detail types are ignored.
func FromProto(pb *statuspb.Status) *Status {
	if pb == nil || codes.Code(pb.GetCode()) == codes.OK {
		return nil
	}

	st := &Status{
		code:    codes.Code(pb.GetCode()),
		message: pb.GetMessage(),
	}

	for _, detail := range pb.GetDetails() {
		info := &errdetails.ErrorInfo{}

		err := detail.UnmarshalTo(info)
		if err != nil {
			continue
		}

		if len(info.GetMetadata()) == 0 {
			continue
		}

		st.metadata = make(map[string]string, len(info.GetMetadata()))
		for k, v := range info.GetMetadata() {
			st.metadata[k] = v
		}
	}

	return st
}

// Proto converts the status into a google.rpc.Status. Metadata, if present,
// travels as an ErrorInfo detail.
func (s *Status) Proto() *statuspb.Status {
	if s == nil {
		return &statuspb.Status{Code: int32(codes.OK)}
	}

	pb := &statuspb.Status{
		Code:    int32(s.code),
		Message: s.message,
	}

	if len(s.metadata) == 0 {
		return pb
	}

	info := &errdetails.ErrorInfo{
		Domain:   ErrorInfoDomain,
		Metadata: s.MetadataMap(),
	}

	detail, err := anypb.New(info)
	if err != nil {
		// Metadata is diagnostic only; the code and message still stand.
		return pb
	}

	pb.Details = append(pb.Details, detail)

	return pb
}
