package component

// Media tracks play state of media attached to an object (a TV channel, a
// radio, an appliance hum). Playback itself belongs to the renderer.
type Media struct {
	Playing map[string]bool
}

func (m *Media) Play(name string) {
	if m.Playing == nil {
		m.Playing = make(map[string]bool)
	}
	m.Playing[name] = true
}

func (m *Media) Stop(name string) {
	if m.Playing == nil {
		return
	}
	m.Playing[name] = false
}

func (m *Media) IsPlaying(name string) bool {
	if m == nil || m.Playing == nil {
		return false
	}
	return m.Playing[name]
}

var MediaComponent = NewComponent[Media]()
