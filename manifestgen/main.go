// Copyright 2026 SEQSENSE, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/aws/aws-sdk-go/aws/session"

	"github.com/seqsense/msesegment"
	"github.com/seqsense/msesegment/manifest"
	"github.com/seqsense/msesegment/s3source"
	"github.com/seqsense/msesegment/sink"
)

func main() {
	log.SetFlags(log.Lmicroseconds)

	jobs := flag.Int("j", 1, "number of files processed in parallel")
	bucket := flag.String("bucket", "", "store manifests in this S3 bucket instead of next to the media files")
	prefix := flag.String("prefix", "", "S3 key prefix used with -bucket")
	baseURL := flag.String("base-url", "", "manifest url is the media file base name joined to this URL")
	debug := flag.Bool("debug", false, "print box and element walks")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Generates manifests for MP4 and WebM MSE bytestream files.\n\nUsage: %s [flags] FILES...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	msesegment.SetLogger(msesegment.NewStdLogger(log.Default(), *debug))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	sess := session.Must(session.NewSession())
	opts := []manifest.Option{
		manifest.WithOpener(s3source.New(sess)),
		manifest.WithConcurrency(*jobs),
	}
	if *bucket != "" {
		opts = append(opts, manifest.WithSink(sink.NewS3(*bucket, *prefix, sess)))
	}
	if *baseURL != "" {
		opts = append(opts, manifest.WithBaseURL(*baseURL))
	}
	if err := manifest.GenerateAll(ctx, flag.Args(), opts...); err != nil {
		log.Fatal(err)
	}
}
