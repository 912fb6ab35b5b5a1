package jsrt

import (
	"context"
	"errors"
	"fmt"

	"github.com/GriffinCanCode/AgentOS/jsrt/internal/infrastructure/monitoring"
	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// RunScript runs src inside a scope for c. Cancelling ctx interrupts the
// script; the returned error then wraps ctx.Err().
func (c *Context) RunScript(ctx context.Context, name, src string) (goja.Value, error) {
	if err := c.checkReady(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scope := c.Enter()
	defer scope.Exit()

	timer := monitoring.NewTimer(c.iso.metrics)

	// Setup interrupt handler
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case <-ctx.Done():
			c.vm.Interrupt(ctx.Err())
		case <-stop:
		}
	}()

	val, err := c.vm.RunScript(name, src)

	// Stop the interrupt goroutine before clearing, so a late cancellation
	// cannot leak into the next run
	close(stop)
	<-done
	c.vm.ClearInterrupt()

	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		err = fmt.Errorf("jsrt: script %s interrupted: %w", name, interrupted)
	}

	duration := timer.Stop(err)
	if err != nil {
		c.log.Debug("script failed", zap.String("script", name), zap.Duration("duration", duration), zap.Error(err))
		return nil, err
	}
	c.log.Debug("script finished", zap.String("script", name), zap.Duration("duration", duration))
	return val, nil
}
