package s3

import (
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/my-files/internal/domain"
)

func TestMapErr(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"no such key", minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404}, domain.ErrNotFound},
		{"no such bucket", minio.ErrorResponse{Code: "NoSuchBucket", StatusCode: 404}, domain.ErrNotFound},
		{"quota", minio.ErrorResponse{Code: "QuotaExceeded", StatusCode: 403}, domain.ErrQuotaExceeded},
		{"insufficient storage", minio.ErrorResponse{Code: "XMinioStorageFull", StatusCode: 507}, domain.ErrQuotaExceeded},
		{"access denied", minio.ErrorResponse{Code: "AccessDenied", StatusCode: 403}, domain.ErrProvider},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := mapErr(tc.in)
			if tc.want == nil {
				require.NoError(t, got)
				return
			}
			require.ErrorIs(t, got, tc.want)
		})
	}
}
