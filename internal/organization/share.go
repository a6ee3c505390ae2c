package organization

import "fmt"

// ShareMessage is the text offered by the share action on the organization
// screen.
func ShareMessage(code, name string) string {
	if name == "" {
		name = "Our Organization"
	}
	return fmt.Sprintf("Join my organization \"%s\" on Walk-in Appointment System!\n\n"+
		"Organization Code: %s\n\n"+
		"Use this code to join our organization and start managing appointments together.",
		name, code)
}
