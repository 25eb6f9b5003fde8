package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gwillem/envirobot/pkg/command"
	"github.com/gwillem/envirobot/pkg/robot"
	"github.com/gwillem/envirobot/pkg/telemetry"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

type SetupCommand struct {
	NoTest bool `long:"no-test" description:"Skip the controller test exchange"`
}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("EnviroBot Setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━"))
	fmt.Println()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load %s: %w", opts.Config, err)
	}

	// Step 1: serial port
	fmt.Println(subHeaderStyle.Render("━━━ Microcontroller ━━━"))
	fmt.Println()
	port, err := choosePort(cfg.Robot.SerialPort)
	if err != nil {
		return err
	}
	cfg.Robot.SerialPort = port

	// Step 2: addresses
	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Network ━━━"))
	fmt.Println()
	if err := askAddresses(cfg); err != nil {
		return err
	}

	if err := cfg.SaveTo(opts.Config); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	// Step 3: optional test exchange
	if !c.NoTest && port != "" {
		fmt.Println()
		testController(cfg.Robot)
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", opts.Config)
	fmt.Println()
	fmt.Println("On the robot:           " + headerStyle.Render("envirobot relay"))
	fmt.Println("On the ground station:  " + headerStyle.Render("envirobot station"))
	return nil
}

// choosePort lists serial ports and lets the user pick one. It falls back
// to current when no port is found.
func choosePort(current string) (string, error) {
	ports, err := robot.FindPorts()
	if err != nil {
		fmt.Printf("Error listing ports: %v\n", err)
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found. Keeping " + headerStyle.Render(current) + ".")
		return current, nil
	}

	fmt.Println(portTable(ports))
	fmt.Println()

	options := make([]huh.Option[string], 0, len(ports))
	for _, p := range ports {
		options = append(options, huh.NewOption(p.Label(), p.Name))
	}

	selected := ports[0].Name
	for _, p := range ports {
		if p.Name == current {
			selected = current
		}
	}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which port is the microcontroller on?").
				Description("Arduino boards are listed first").
				Options(options...).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	return selected, nil
}

func portTable(ports []robot.PortInfo) string {
	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)
	tablePortStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)

	rows := make([][]string, 0, len(ports))
	for _, p := range ports {
		usb := ""
		if p.IsUSB {
			usb = strings.ToLower(p.VID + ":" + p.PID)
		}
		rows = append(rows, []string{p.Name, p.Product, usb})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Port", "Product", "USB ID").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			if col == 0 {
				return tablePortStyle
			}
			return tableCellStyle
		}).
		Render()
}

func askAddresses(cfg *robot.Config) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Station address").
				Description("host:port the relay dials").
				Value(&cfg.Robot.StationAddr),
			huh.NewInput().
				Title("Video stream URL").
				Description("MJPEG stream served on the robot").
				Value(&cfg.Station.VideoURL),
			huh.NewInput().
				Title("MQTT broker (optional)").
				Description("Publish telemetry, for example tcp://localhost:1883").
				Value(&cfg.Station.MQTT.Broker),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	return nil
}

// testController opens the port, waits for the board to reset and sends
// one neutral command.
func testController(rc robot.RobotConfig) {
	ok := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Send a test command to %s?", rc.SerialPort)).
				Affirmative("Yes").
				Negative("Skip").
				Value(&ok),
		),
	)
	if err := form.Run(); err != nil || !ok {
		return
	}

	ctrl, err := robot.OpenController(robot.ControllerConfig{
		Port:        rc.SerialPort,
		BaudRate:    rc.BaudRate,
		ReadTimeout: rc.ReadTimeout(),
	})
	if err != nil {
		fmt.Println(errorStyle.Render(err.Error()))
		return
	}
	defer ctrl.Close()

	fmt.Printf("Waiting %s for the board to reset...\n", rc.SettleDelay())
	time.Sleep(rc.SettleDelay())

	line, err := ctrl.Exchange(command.Neutral.String())
	if err != nil {
		fmt.Println(errorStyle.Render(err.Error()))
		return
	}
	if r, valid := telemetry.Parse(line); valid {
		fmt.Println(successStyle.Render("Controller answered:"))
		for _, f := range telemetry.AllFields() {
			fmt.Printf("  %-12s %s\n", f.Label(), r.Get(f))
		}
		return
	}
	fmt.Println(errorStyle.Render(fmt.Sprintf("Unexpected reply %q", strings.TrimSpace(line))))
}
