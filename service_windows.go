//go:build windows

// Package main provides Windows service support for the generation service.
//
// service_windows.go implements the Windows Service interface using
// github.com/kardianos/service, so the application can run as a background
// service with proper Start/Stop handling.
package main

import (
	"fmt"
	"time"

	"github.com/kardianos/service"
)

// Program implements service.Interface for Windows Service integration.
type Program struct {
	exit chan struct{}
	done chan struct{}
}

// Start is called when the service is started.
// It begins the application in a goroutine and returns immediately.
func (p *Program) Start(s service.Service) error {
	p.exit = make(chan struct{})
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		run()
	}()

	return nil
}

// Stop is called when the service is stopped.
// It signals the application to shut down gracefully.
func (p *Program) Stop(s service.Service) error {
	close(p.exit)

	select {
	case <-p.done:
	case <-time.After(30 * time.Second):
		return fmt.Errorf("timeout waiting for service to stop")
	}

	return nil
}

// ServiceConfig returns the Windows service configuration.
func ServiceConfig() *service.Config {
	return &service.Config{
		Name:        "ImageGenService",
		DisplayName: "Text-to-Image Generation Service",
		Description: "Serves text-to-image generation over HTTP using a local Stable Diffusion model",
		Option: service.KeyValue{
			"StartType": "automatic",
		},
	}
}

// RunAsService runs the application as a Windows service.
// Returns true if running as a service, false if running interactively.
func RunAsService() (bool, error) {
	prg := &Program{}

	s, err := service.New(prg, ServiceConfig())
	if err != nil {
		return false, fmt.Errorf("failed to create service: %w", err)
	}

	if service.Interactive() {
		return false, nil
	}

	if err := s.Run(); err != nil {
		return true, fmt.Errorf("service run failed: %w", err)
	}

	return true, nil
}

// HandleServiceCommand handles install/uninstall/start/stop commands.
// Returns true if a service command was handled.
func HandleServiceCommand(args []string) bool {
	if len(args) == 0 {
		return false
	}

	var err error
	switch args[0] {
	case "install":
		err = controlService(func(s service.Service) error { return s.Install() }, "installed")
	case "uninstall":
		err = controlService(func(s service.Service) error { return s.Uninstall() }, "uninstalled")
	case "start":
		err = controlService(func(s service.Service) error { return s.Start() }, "started")
	case "stop":
		err = controlService(func(s service.Service) error { return s.Stop() }, "stopped")
	default:
		return false
	}

	if err != nil {
		fmt.Printf("Service command failed: %v\n", err)
	}
	return true
}

func controlService(action func(service.Service) error, verb string) error {
	prg := &Program{}
	s, err := service.New(prg, ServiceConfig())
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	if err := action(s); err != nil {
		return err
	}

	fmt.Printf("Service %s successfully\n", verb)
	return nil
}
