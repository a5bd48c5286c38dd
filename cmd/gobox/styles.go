package main

import "github.com/charmbracelet/lipgloss"

var (
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	heading = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
)
