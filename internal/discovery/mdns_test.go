package discovery

import (
	"net"
	"testing"

	"github.com/hashicorp/mdns"
	"github.com/stretchr/testify/assert"
)

func TestFromEntry(t *testing.T) {
	_, ok := fromEntry(nil)
	assert.False(t, ok)

	_, ok = fromEntry(&mdns.ServiceEntry{Name: "v6only", AddrV6: net.ParseIP("::1"), Port: 3000})
	assert.False(t, ok)

	_, ok = fromEntry(&mdns.ServiceEntry{Name: "noport", AddrV4: net.IPv4(10, 0, 0, 2)})
	assert.False(t, ok)

	s, ok := fromEntry(&mdns.ServiceEntry{
		Name:       "laptop._melinaboard._tcp.local.",
		AddrV4:     net.IPv4(192, 168, 1, 20),
		Port:       3000,
		InfoFields: []string{"melina-board"},
	})
	assert.True(t, ok)
	assert.Equal(t, "http://192.168.1.20:3000", s.BaseURL())
	assert.Equal(t, []string{"melina-board"}, s.Info)
}
