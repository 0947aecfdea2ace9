package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type fakeS3 struct {
	put       *s3.PutObjectInput
	body      []byte
	putErr    error
	getKey    string
	content   string
	deleteKey string
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.put = params
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.body = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.getKey = aws.ToString(params.Key)
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.content))}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleteKey = aws.ToString(params.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "scope/file.pdf", want: "scope/file.pdf"},
		{name: "simple prefix", prefix: "uploads", key: "scope/file.pdf", want: "uploads/scope/file.pdf"},
		{name: "prefix and key slashes", prefix: "/uploads/", key: "/scope/file.pdf", want: "uploads/scope/file.pdf"},
		{name: "empty key", prefix: "uploads", key: "", want: "uploads"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestSaveUploadsWithPrefixAndKMS(t *testing.T) {
	fake := &fakeS3{}
	store := newWithClient(fake, "decks", "uploads/", "kms-123")

	obj, err := store.Save(context.Background(), "client", "pilot.txt", strings.NewReader("FADE IN:"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if obj.SizeBytes != int64(len("FADE IN:")) {
		t.Fatalf("unexpected size %d", obj.SizeBytes)
	}
	if string(fake.body) != "FADE IN:" {
		t.Fatalf("unexpected body %q", fake.body)
	}
	if got := aws.ToString(fake.put.Key); got != "uploads/"+obj.Key {
		t.Fatalf("unexpected object key %q for storage key %q", got, obj.Key)
	}
	if fake.put.ServerSideEncryption != s3types.ServerSideEncryptionAwsKms {
		t.Fatalf("expected kms encryption, got %q", fake.put.ServerSideEncryption)
	}
}

func TestSaveWrapsPutError(t *testing.T) {
	boom := errors.New("denied")
	store := newWithClient(&fakeS3{putErr: boom}, "decks", "", "")
	if _, err := store.Save(context.Background(), "client", "pilot.txt", strings.NewReader("x")); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestOpenAppliesPrefix(t *testing.T) {
	fake := &fakeS3{content: "hello"}
	store := newWithClient(fake, "decks", "uploads", "")
	rc, err := store.Open(context.Background(), "abc/file.txt")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	if fake.getKey != "uploads/abc/file.txt" {
		t.Fatalf("unexpected get key %q", fake.getKey)
	}
}

func TestDeleteAppliesPrefix(t *testing.T) {
	fake := &fakeS3{}
	store := newWithClient(fake, "decks", "uploads", "")
	if err := store.Delete(context.Background(), "abc/file.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if fake.deleteKey != "uploads/abc/file.txt" {
		t.Fatalf("unexpected delete key %q", fake.deleteKey)
	}
}
