package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// 进程退出码约定。
const (
	exitOK          = 0
	exitFailed      = 1
	exitUsage       = 2
	exitInterrupted = 130
)

// exitError 让子命令把退出码交还给 execute；消息已由子命令自己输出。
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit %d", e.code) }

// usageError 携带出错子命令自己的 usage，避免一律打印根命令的帮助。
type usageError struct {
	err   error
	usage string
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// 其余错误都来自参数解析（未知命令/未知参数/参数个数不对）。
	fmt.Fprintf(stderr, "参数错误：%v\n\n", err)
	fmt.Fprint(stderr, usageFor(root, args, err))
	return exitUsage
}

func usageFor(root *cobra.Command, args []string, err error) string {
	var ue *usageError
	if errors.As(err, &ue) && ue.usage != "" {
		return ue.usage
	}
	if cmd, _, ferr := root.Find(args); ferr == nil && cmd != nil {
		return cmd.UsageString()
	}
	return root.UsageString()
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "imdbscraper",
		Short:         "抓取 IMDb 榜单与详情页，导出 CSV / JSON",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err: err, usage: cmd.UsageString()}
	})

	root.AddCommand(newRunCmd(stdout, stderr))
	root.AddCommand(newShowCmd(stdout, stderr))
	return root
}
