// Package discovery finds upsd instances on the local network via mDNS.
// Daemons announcing the "_nut._tcp" service are browsed and reported as
// Server values ready to dial.
package discovery
