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
	"github.com/seqsense/msesegment/s3source"
	"github.com/seqsense/msesegment/sink"
	"github.com/seqsense/msesegment/splitter"
)

func main() {
	log.SetFlags(log.Lmicroseconds)

	var basedir string
	flag.StringVar(&basedir, "basedir", "", "base directory where the segments will be extracted to")
	flag.StringVar(&basedir, "b", "", "shorthand for -basedir")
	bucket := flag.String("bucket", "", "upload the segments to this S3 bucket instead of -basedir")
	prefix := flag.String("prefix", "", "S3 key prefix used with -bucket")
	jobs := flag.Int("j", 1, "number of files processed in parallel")
	debug := flag.Bool("debug", false, "print box and element walks")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"Splits MP4 and WebM MSE bytestream files into one file per segment.\n\nUsage: %s -basedir DIR|-bucket BUCKET [flags] FILES...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 || (basedir == "") == (*bucket == "") {
		flag.Usage()
		os.Exit(2)
	}
	msesegment.SetLogger(msesegment.NewStdLogger(log.Default(), *debug))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	sess := session.Must(session.NewSession())
	var s sink.Sink = sink.Dir{Path: basedir}
	if *bucket != "" {
		s = sink.NewS3(*bucket, *prefix, sess)
	}
	err := splitter.SplitAll(ctx, flag.Args(), s,
		splitter.WithOpener(s3source.New(sess)),
		splitter.WithConcurrency(*jobs),
	)
	if err != nil {
		log.Fatal(err)
	}
}
