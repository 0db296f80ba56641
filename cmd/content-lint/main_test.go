package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestRun(t *testing.T) {
	convey.Convey("Given the content lint command", t, func() {
		var stdout, stderr bytes.Buffer
		lint := func(args ...string) int {
			stdout.Reset()
			stderr.Reset()
			return run(args, &stdout, &stderr)
		}

		convey.Convey("When checking the embedded seed content", func() {
			convey.So(lint(), convey.ShouldEqual, exitOK)
			convey.So(stdout.String(), convey.ShouldContainSubstring, "0 errors")
		})

		convey.Convey("When passing an unknown category", func() {
			convey.So(lint("-category", "dragons"), convey.ShouldEqual, exitUsage)
		})

		convey.Convey("When checking a directory with a broken event", func() {
			dir := t.TempDir()
			convey.So(os.MkdirAll(filepath.Join(dir, "events"), 0o755), convey.ShouldBeNil)
			convey.So(os.WriteFile(filepath.Join(dir, "events", "bad.md"),
				[]byte("---\ntitle: No date\n---\nBody\n"), 0o600), convey.ShouldBeNil)

			convey.So(lint("-dir", dir, "-category", "events"), convey.ShouldEqual, exitFailed)
			convey.So(stdout.String(), convey.ShouldContainSubstring, "bad.md: error: date: missing date")
		})

		convey.Convey("When warnings are present", func() {
			dir := t.TempDir()
			convey.So(os.MkdirAll(filepath.Join(dir, "news"), 0o755), convey.ShouldBeNil)
			convey.So(os.WriteFile(filepath.Join(dir, "news", "empty.md"),
				[]byte("---\ntitle: Empty\ndate: 2026-10-01\n---\n"), 0o600), convey.ShouldBeNil)

			convey.Convey("Then they pass by default and fail with -strict", func() {
				convey.So(lint("-dir", dir, "-category", "news"), convey.ShouldEqual, exitOK)
				convey.So(lint("-dir", dir, "-category", "news", "-strict"), convey.ShouldEqual, exitFailed)
			})
		})

		convey.Convey("When asking for help", func() {
			convey.So(lint("-help"), convey.ShouldEqual, exitOK)
			convey.So(stdout.String(), convey.ShouldContainSubstring, "Lodge Content Lint")
		})
	})
}
