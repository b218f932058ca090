package s3upload

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/discochess/partsplit/internal/upload"
)

// fakeClient stores objects in a map and pages listings two keys at a time.
type fakeClient struct {
	mu      sync.Mutex
	objects map[string]string
}

func (f *fakeClient) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = string(data)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeClient) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeClient) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	prefix := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Prefix)
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, strings.TrimPrefix(k, aws.ToString(in.Bucket)+"/"))
		}
	}
	sort.Strings(keys)

	start := 0
	if tok := aws.ToString(in.ContinuationToken); tok != "" {
		start = slices.Index(keys, tok)
	}
	end := min(start+2, len(keys))

	out := &s3.ListObjectsV2Output{}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	if end < len(keys) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[end])
	}
	return out, nil
}

func TestBucket_Publish(t *testing.T) {
	client := &fakeClient{objects: map[string]string{
		"data/in/x.part0": "old",
		"data/in/x.part3": "old",
		"data/in/x.part4": "old",
		"data/in/x.part5": "old",
		"data/in/y.txt":   "other",
	}}
	b, err := New(context.Background(), "s3://data/in", WithClient(client))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	dir := t.TempDir()
	var files []string
	for _, name := range []string{"x.part0", "x.part1"} {
		path := filepath.Join(dir, name)
		os.WriteFile(path, []byte(name+"\n"), 0644)
		files = append(files, path)
	}

	res, err := upload.Publish(context.Background(), b, files, "x.part", nil)
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	want := map[string]string{
		"data/in/x.part0": "x.part0\n",
		"data/in/x.part1": "x.part1\n",
		"data/in/y.txt":   "other",
	}
	if len(client.objects) != len(want) {
		t.Errorf("objects = %v, want %v", client.objects, want)
	}
	for k, v := range want {
		if client.objects[k] != v {
			t.Errorf("object %s = %q, want %q", k, client.objects[k], v)
		}
	}
	if len(res.Pruned) != 3 {
		t.Errorf("Pruned = %v, want 3 objects", res.Pruned)
	}
}

func TestBucket_URL(t *testing.T) {
	b, err := New(context.Background(), "s3://data", WithClient(&fakeClient{}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := b.URL("p0"); got != "s3://data/p0" {
		t.Errorf("URL() = %q", got)
	}
}
