package apiviewv1

import (
	"context"
)

type documentResponse struct {
	Document string `json:"document"`
}

// document asks the engine for the document as it is after the edits.
func document(ctx context.Context) (*documentResponse, error) {

	handle, err := getHandle(ctx)
	if err != nil {
		return nil, err
	}

	d, err := GetServicer(ctx).FetchDocument(ctx, handle)
	if err != nil {
		return nil, err
	}

	return &documentResponse{Document: d}, nil
}
