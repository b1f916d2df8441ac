package app

import "github.com/crucial707/blog-client/internal/ui"

// SwitchTab activates tab. Entering any tab closes the mobile sidebar.
func (a *App) SwitchTab(st ui.State, tab ui.Tab) ui.State {
	st.Tab = tab
	st.SidebarOpen = false
	return st
}

func (a *App) OpenSidebar(st ui.State) ui.State {
	st.SidebarOpen = true
	return st
}

func (a *App) CloseSidebar(st ui.State) ui.State {
	st.SidebarOpen = false
	return st
}
